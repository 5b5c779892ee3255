// Copyright (c) 2026 Living Atlas. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package constants provides centralized, immutable values for the entire platform.

It defines default timeouts, rate limits, and cross-cutting keys that are shared
between different layers of the system.

Categories:

  - Server Timing: Read/Write/Idle timeouts for the HTTP server.
  - Rate Limiting: Burst capacities and IP tracking TTLs.
  - Uploads: Multipart memory threshold and blob key prefixes.
*/
package constants

import "time"

// # Metadata

const (
	AppName    = "living-atlas-api"
	AppVersion = "0.1.0-dev"
)

// # Server Timing

const (
	// DefaultReadTimeout is the maximum duration for reading the entire request.
	// Card submissions stream attachments, so this is far above a JSON-only API.
	DefaultReadTimeout = 15 * time.Minute

	// DefaultWriteTimeout is the maximum duration before timing out writes of the response.
	DefaultWriteTimeout = 15 * time.Minute

	// DefaultIdleTimeout is the maximum amount of time to wait for the next request.
	DefaultIdleTimeout = 120 * time.Second

	// DefaultReadHeaderTimeout is the amount of time allowed to read request headers.
	DefaultReadHeaderTimeout = 2 * time.Second

	// GlobalRequestTimeout is the deadline for read-only requests.
	GlobalRequestTimeout = 30 * time.Second

	// SubmissionTimeout is the deadline for a multipart card submission.
	SubmissionTimeout = 15 * time.Minute

	// StatementTimeout bounds every SQL statement on a pooled connection.
	StatementTimeout = 30 * time.Second

	// ShutdownTimeout is how long we wait for in-flight requests to complete during shutdown.
	ShutdownTimeout = 30 * time.Second
)

// # Rate Limiting

const (
	// RateLimitCleanupInterval is how often old IP entries are removed from memory.
	RateLimitCleanupInterval = 1 * time.Minute

	// RateLimitClientTTL is how long a client must be idle before its entry is deleted.
	RateLimitClientTTL = 3 * time.Minute
)

// # Uploads

const (
	// MultipartMemory is the part of a multipart body kept in memory; the rest spills to disk.
	MultipartMemory = 32 << 20

	// BlobPrefixThumbnails is the key prefix for card thumbnails.
	BlobPrefixThumbnails = "thumbnails/"

	// BlobPrefixFiles is the key prefix for zipped card attachments.
	BlobPrefixFiles = "files/"
)

// # HTTP Headers

const (
	HeaderXRequestID    = "X-Request-ID"
	HeaderXRealIP       = "X-Real-IP"
	HeaderXForwardedFor = "X-Forwarded-For"
)

// # JSON Field Identifiers

// Keys of the readiness payload.
const (
	FieldStatus = "status"
	FieldChecks = "checks"
)

// # Redis Prefixes

const (
	// RedisKeyOrphanBlobs is the set of blob keys awaiting deletion by the sweeper.
	RedisKeyOrphanBlobs = "atlas:blob:orphans"
)
