package model

import (
    "encoding/json"
    "time"
)

// ResourceKind identifies one of the owned-resource tables. Saved
// models, gesture mappings and note sequences share an identical
// schema and identical lifecycle rules, so the repository and
// handler layers are written once and instantiated per kind.
//
// Fields:
//  Table    – name of the backing table (e.g. "saved_models").
//  Singular – label used in JSON error messages (e.g. "model").
type ResourceKind struct {
    Table    string
    Singular string
}

// The three resource kinds stored by the service. The payload
// column is opaque JSON: trained model topology and weights for
// saved models, gesture-to-action configuration for mappings, and
// per-class note/event data for sequences.
var (
    KindSavedModel     = ResourceKind{Table: "saved_models", Singular: "model"}
    KindGestureMapping = ResourceKind{Table: "gesture_mappings", Singular: "mapping"}
    KindNoteSequence   = ResourceKind{Table: "note_sequences", Singular: "sequence"}
)

// Resource represents a row in one of the owned-resource tables.
// Which table it came from is determined by the ResourceKind the
// repository was constructed with. Author carries the owner's
// username, joined in by the repository for display purposes.
//
// Fields:
//  ID          – primary key identifier.
//  OwnerID     – user who created the resource.
//  Name        – unique per (owner, kind); saving an existing name
//                overwrites the row in place.
//  Description – optional free-text description (nullable).
//  Payload     – opaque JSON blob owned by the frontend.
//  IsActive    – at most one active row per owner and kind.
//  IsPublic    – whether non-owners may read the resource.
//  CreatedAt   – timestamp of first save under this name.
//  Author      – owner's username (denormalized, not a column).
type Resource struct {
    ID          uint64          // <kind>.id
    OwnerID     uint64          // <kind>.owner_id
    Name        string          // <kind>.name
    Description *string         // <kind>.description (nullable)
    Payload     json.RawMessage // <kind>.payload
    IsActive    bool            // <kind>.is_active
    IsPublic    bool            // <kind>.is_public
    CreatedAt   time.Time       // <kind>.created_at
    Author      string          // users.username (join)
}
