// Package models defines the core domain models for messmate.
//
// # Models
//
//   - User: registered account; its DisplayName is what member listings show
//   - Mess: a household sharing meal and expense accounting
//   - Member: a user's membership in a mess, with role and capability flags
//   - Month: one accounting period of a mess; at most one is active
//   - Meal, Expense, Allocation, Deposit: the rows of a month's ledger
//   - BazaarSchedule: who does the shopping on a given date
//
// # Design Principles
//
// 1. **IDs, not pointers**: relationships are expressed with ID strings
// 2. **Derived values are not stored**: meal rate, costs and balances are computed by
// the ledger package from these rows on every read
// 3. **No denormalized names**: the people involved in an expense are looked up through
// allocations and shoppers, never stored as text on the expense
package models
