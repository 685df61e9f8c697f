// Package service contains the application-specific use cases and business
// logic. It orchestrates interactions between domain objects and repositories
// (defined in internal/store) to fulfill application features.
//
// Each subpackage owns one domain area:
//
//   - review: topic intake and the pipeline transitions (assignment, scored
//     reviews, overdue resurfacing)
//   - economy: the gem wallet, the transaction ledger, and purchase-to-mastery
//   - stats: XP grants, the study streak, and prestige points
//   - achievement: the unlock predicate registry and its idempotent evaluator
//   - auth: bearer token verification for the API middleware
//
// Services receive dependencies through constructor injection and apply
// transactional boundaries when operations span multiple repositories.
// Expected failure conditions surface as sentinel errors that callers check
// with errors.Is; unexpected errors are wrapped in service-specific error
// types. The service layer depends on domain entities and repository
// interfaces (from store), but never on a specific infrastructure
// implementation.
package service
