// Package model defines the core data types shared by the ingestion,
// deduplication, query, and annotation-resolution subsystems: items and
// their per-source extensions, imports and revisions, annotation schemes,
// and the resolution matrix built on top of them.
//
// Types here mirror the relational schema described in the project's data
// model: a shared `items` table plus one extension table per discriminator
// (academic, lexis, generic, twitter), joined on item_id. None of these
// types talk to a database directly — see internal/storagesql for the
// interfaces that do.
package model
