// Package domain contains the core business entities, value objects, and
// domain logic of the application: generations, their failure log, flashcards
// and users. It is independent of any specific infrastructure or delivery
// mechanism.
package domain
