// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package router defines HTTP routes for the Quickly Validate API.

NewRouter builds an http.ServeMux using Go 1.22 method patterns and wraps it
with the CORS middleware:

	h := router.NewRouter(st, guard)

# Endpoints

	GET  /health            - 200 "OK" when the store answers a ping
	GET  /                  - API banner
	POST /validations       - Submit a scan
	GET  /validations       - Total count
	POST /validations/clear - Delete all validations
	GET  /validations/clear - Usage hint
*/
package router
