// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package store executes validation queries.

	s := store.New(conn, dialect)
	if err := s.Init(ctx); err != nil {
		log.Fatal(err)
	}

	res, err := s.Insert(ctx, models.Validation{Code: code, DeviceID: deviceID})
	if res.Outcome == store.OutcomeDuplicate {
		// already validated for this device
	}

Duplicates are reported through InsertResult, never as errors. At most one
row exists per (code, device_id) because of the unique index; the store adds
no locking of its own. Insert followed by Count is two round trips, so a
concurrent DeleteAll can make the count stale.
*/
package store
