package domain

import "github.com/google/uuid"

type UserID = uuid.UUID
type TeacherID = uuid.UUID
type StudentID = uuid.UUID
type SchoolID = uuid.UUID
type ClassID = uuid.UUID
type SessionID = uuid.UUID
type FactorID = uuid.UUID
type TokenID = uuid.UUID
type CredentialID = uuid.UUID
