// Package app is the composition root shared by cmd/bookdesk and httpapi.
//
// Library owns one handler per use case, each wrapped for observability; catalog and
// borrow record queries additionally go through snapshots. Its methods take the acting
// member and enforce who may do what:
//
//	librarians: catalog changes, member deletion, all loan decisions, pending lists, dashboard
//	members:    borrow requests and return requests for themselves, their own loans and history
//	anyone:     catalog reads, login, self-registration as member
package app
