// Package harness runs exchange scenarios end to end.
//
// A scenario registers a cohort, drives the command surface through a flow
// of requests and checks the outcome. Each run uses a fresh in-memory SQLite
// store, fixed run ids, a fixed clock and a deterministic shuffle, so the
// trace it produces can be compared against a golden file.
//
// # Scenario Format
//
//	name: three_participants
//	description: "B has DMs closed"
//	operator: op
//	shuffle: rotate
//	participants:
//	  - id: A
//	    recipient: Anna
//	    ozon: "Lenina 1"
//	  - id: B
//	    recipient: Boris
//	    unreachable: true
//	flow:
//	  - invoke: start_exchange
//	    sender: op
//	    channel: guild
//	    expect: { ok: true }
//	assertions:
//	  - type: derangement
//	  - type: failed
//	    participants: [B]
//
// # Shuffles
//
//   - rotate (default): every random trial is the identity, so the exchange
//     always takes the rotation fallback over the sorted participant ids.
//   - seeded: a PCG source seeded with seed drives the shuffle.
//
// # Assertion Types
//
//   - derangement: assignments are a fixed-point-free bijection over the cohort
//   - assignment: participant gives to target
//   - delivery_count: participant received exactly count messages
//   - failed: the failure list of the last exchange equals participants
//   - journal_count: exactly count runs were journaled
package harness
