package metrics

import "expvar"

var (
	BookUpdatesStream = expvar.NewInt("book_updates_stream")
	BookUpdatesPoll   = expvar.NewInt("book_updates_poll")
	StreamReconnects  = expvar.NewInt("stream_reconnects")

	Fills           = expvar.NewInt("fills")
	Settlements     = expvar.NewInt("settlements")
	DiscoveryErrors = expvar.NewInt("discovery_errors")

	SnapshotSaves     = expvar.NewInt("snapshot_saves")
	SnapshotSaveFails = expvar.NewInt("snapshot_save_fails")
)
