package config

const (
	// MaxSaveBatchSize caps the rows accepted by a single save. The tracker
	// table is small; a larger batch means a client bug.
	MaxSaveBatchSize = 5000

	// MaxTextFieldLength is the maximum length of a free-text or enum cell.
	// Comments are the longest values in practice.
	MaxTextFieldLength = 4000

	// MaxRowID is the largest id a client may send: the grid holds ids as
	// JavaScript numbers, exact only up to 2^53-1.
	MaxRowID = 1<<53 - 1

	// MaxDeleteBatchSize caps ids or positions in one removal request.
	MaxDeleteBatchSize = 1000

	// ExportFilenamePrefix is the download name prefix, followed by the
	// current date in DD.MM.YYYY.
	ExportFilenamePrefix = "DP_Tracker_"
)
