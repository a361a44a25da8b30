// Package machines implements a multi-tenant machine registry: token
// authenticated users create, query, and mutate machine records scoped to
// their own account.
//
// Request pipeline:
//   - TokenService validates the signed bearer credential and exposes its
//     claims. The signing secret is injected through Config at construction,
//     never read from ambient process state.
//   - UserProvider resolves a verified claim subject to a stored User.
//   - middleware/tokenware composes both into a route guard that attaches a
//     strongly typed identity to the request context, or rejects the request
//     before any handler runs.
//
// Ownership model:
//   - Every Machine references exactly one owner, set at creation and never
//     reassigned. Updates require the caller to be the owner; reads by id
//     and deletes operate on the raw id (see MachineController for the
//     per-operation authorization rules).
//
// Persistence is handled by Bun repositories; see RepositoryManager for the
// aggregate entry point.
package machines
