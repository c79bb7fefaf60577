// Package campaign implements campaign lifecycle management.
//
// The service layer contains all business logic for creating, duplicating,
// resetting, and deleting campaigns, for ingesting their leads and template
// documents, and for keeping aggregate stats mirrored from the history
// ledger. It depends on repository interfaces defined in this package and
// should never import from api/.
//
// Repository implementations live in repository/postgres/.
package campaign
