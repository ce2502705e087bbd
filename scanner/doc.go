// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package scanner holds the client side scanning session.

A Scanner moves through idle → scanning → closed, or → error when the camera
cannot be acquired. While scanning, every decoded payload goes through
HandleDecode. Only the expected code is submitted, and at most once per
session: an in-flight flag and a last-processed marker are both checked, so
the same QR code seen across many frames produces one request. Each request
carries a fresh submission token that the server uses to detect replays.

A successful submission reloads the count, shows the success indicator for
a few seconds and closes the session. A failed one shows an error and keeps
the marker set until the user closes and scans again. The camera is released
on every path out of scanning.

The camera itself is an interface; ReaderCamera adapts a stream of already
decoded payloads, such as stdin.
*/
package scanner
