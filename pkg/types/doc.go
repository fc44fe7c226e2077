// Package types defines the Session and Entity interfaces, the entity
// descriptor and collection-state types, and the standard errors for the
// caseload entity-access layer.
package types
