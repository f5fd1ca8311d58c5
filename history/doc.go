// Package history persists the conversation transcript between sessions.
//
// Persistence model:
//   - Ordered list of role-tagged messages written as pretty-printed JSON.
//   - Tool call metadata is stored so reloaded transcripts stay valid prefixes.
//   - Deleting the file resets history.
package history
