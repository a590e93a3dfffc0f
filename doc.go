// Package auth provides marketplace authorization primitives (session
// stores, role gates, seller onboarding lifecycle) plus the persistence and
// HTTP wiring around them.
//
// Sessions:
//   - SessionStore is the single source of truth for the end user session.
//     It has three states: loading, absent, and present. Gates defer while
//     loading so protected surfaces never misroute during startup.
//   - AdminSessionStore tracks administrator sessions on a fully separate
//     track backed by its own admin_users credential table. Restoration
//     trusts locally stored payloads; credentials are only checked at login.
//
// Authorization:
//   - RoleGate and AdminGate produce pure Decisions (allow, redirect, defer)
//     from current session state. Roles ride in identity metadata with a
//     buyer default, so a missing or unrecognized role never widens access.
//   - UserDataResolver merges the session with the owner's seller
//     application; lookup failures degrade to an absent status rather than
//     unlocking anything.
//
// Onboarding lifecycle:
//   - SellerApplication records move pending -> approved | rejected through
//     ApplicationStateMachine. Decided applications are terminal unless
//     resubmission is explicitly enabled, which adds rejected -> pending.
//   - ActivitySink is a light-weight audit emitter used by the stores, the
//     command handlers, and the state machine. Sinks run best-effort so
//     forwarding events can never block authentication or review.
package auth
