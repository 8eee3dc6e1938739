// Package models defines the core domain models for Governa.
//
// # Entities
//
//   - Citizen: a constituent record, keyed by national ID
//   - Petition: a citizen's request/complaint with a lifecycle status
//   - Meeting: a scheduled appointment with optional notes, generated
//     minutes, commitments and tasks
//   - Task: a checklist item attached to a meeting
//   - User: a back-office account used for session authentication
//
// # AI artifacts
//
// Advice, MeetingMinutes and QuickMinutes are the structured shapes the
// generative pipeline extracts from model output. Their JSON tags match the
// keys the prompts demand, which are Spanish because the application's
// user-facing language is Spanish.
//
// # Design Principles
//
//  1. **Plain structs**: no ORM annotations; the storage layer owns SQL
//  2. **String UUIDs** for identity, assigned by the store on create
//  3. **Unix timestamps** (int64) for all instants; timezone handling is the
//     caller's concern
//  4. **Avoid circular references**: relationships use ID strings, with the
//     one convenience exception of a citizen carrying its latest petition
package models
