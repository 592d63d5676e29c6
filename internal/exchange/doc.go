// Package exchange runs a Secret Santa exchange.
//
// The Orchestrator owns the three operations that change the exchange:
//
//   - Register stores a participant's gift profile.
//   - Run assigns every registered participant a recipient and privately
//     tells each giver who they give to and where to send the parcel.
//   - Forward passes an attachment from a giver to their recipient.
//
// Run follows a fixed sequence. The operator is checked first, then the
// roster is loaded and deranged, and every assignment is written in one
// store transaction. Only after that write succeeds does the fan-out start.
// Notifications are sent one at a time; a failed delivery is recorded and the
// loop moves on, so one participant with closed DMs never blocks the rest.
//
// The fan-out is not checkpointed. A run interrupted mid-fan-out must be
// started again, which computes a fresh derangement and notifies everyone
// under the new assignment.
//
// Only one Run may be in flight per Orchestrator; a second concurrent call
// fails with ErrCodeInProgress instead of waiting.
package exchange
