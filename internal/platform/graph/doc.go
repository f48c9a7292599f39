// Package graph is a small client for the Facebook Graph API.
//
// Responses are returned as gjson.Result values so callers can pick the fields
// they need without declaring a struct per endpoint. Client.Get blocks on the
// network and is meant to be called from a task's background body.
package graph
