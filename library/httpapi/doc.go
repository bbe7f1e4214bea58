// Package httpapi exposes the library over JSON HTTP.
//
// POST /api/login answers with a signed bearer token. The acting member of every other
// request is the subject of its Authorization: Bearer token; requests without one are anonymous.
package httpapi
