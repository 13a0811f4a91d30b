// Command fingerprint prints the content fingerprint and character count of
// source texts, matching the source_text_hash and source_text_length columns
// recorded for generations and generation errors.
//
//	fingerprint notes.txt other.txt
//	pbpaste | fingerprint
//	fingerprint hash-password < password.txt
package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/phrazzld/flashforge/internal/domain"
	"github.com/phrazzld/flashforge/internal/service/auth"
)

func main() {
	if err := newCommand(os.Stdin, os.Stdout).Run(context.Background(), os.Args); err != nil {
		slog.Error("fingerprint failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func newCommand(stdin io.Reader, stdout io.Writer) *cli.Command {
	return &cli.Command{
		Name:      "fingerprint",
		Usage:     "Print the fingerprint and length of source texts (stdin when no file is given)",
		ArgsUsage: "[file...]",
		Action: func(_ context.Context, cmd *cli.Command) error {
			paths := cmd.Args().Slice()
			if len(paths) == 0 {
				return fingerprint(stdout, "-", stdin)
			}
			for _, path := range paths {
				if err := fingerprintFile(stdout, path); err != nil {
					return err
				}
			}
			return nil
		},
		Commands: []*cli.Command{
			{
				Name:  "hash-password",
				Usage: "Read a password from the first line of stdin and print its bcrypt hash",
				Action: func(_ context.Context, _ *cli.Command) error {
					return hashPassword(stdout, stdin, auth.NewBcryptVerifier())
				},
			},
		},
	}
}

func fingerprintFile(w io.Writer, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()
	return fingerprint(w, path, f)
}

// fingerprint writes "<hash> <length> <in range> <name>".
func fingerprint(w io.Writer, name string, r io.Reader) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", name, err)
	}
	text := string(data)

	status := "ok"
	if err := domain.ValidateSourceText(text); err != nil {
		status = "out-of-range"
	}
	_, err = fmt.Fprintf(w, "%s %d %s %s\n", domain.Fingerprint(text), domain.SourceTextLength(text), status, name)
	return err
}

func hashPassword(w io.Writer, r io.Reader, hasher auth.PasswordHasher) error {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && err != io.EOF {
		return fmt.Errorf("failed to read password: %w", err)
	}
	password := strings.TrimRight(line, "\r\n")
	if len(password) < domain.MinPasswordLength || len(password) > domain.MaxPasswordLength {
		return fmt.Errorf("password must be %d to %d bytes", domain.MinPasswordLength, domain.MaxPasswordLength)
	}

	hash, err := hasher.Hash(password)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	_, err = fmt.Fprintln(w, hash)
	return err
}
