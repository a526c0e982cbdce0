package wire

import "github.com/parachain/approval-distribution/internal/approval"

// DefaultMaxNotificationSize bounds a single outbound batch, per spec.md §6.
const DefaultMaxNotificationSize = 8192

// BatchSize computes the per-batch entry bound for a payload whose
// individual entries are approximately entrySize bytes: max(1,
// MAX_NOTIFICATION_SIZE / entry_size / 3), the one-third headroom spec.md
// §6 calls for.
func BatchSize(maxNotificationSize, entrySize int) int {
	if entrySize <= 0 {
		entrySize = 1
	}
	n := maxNotificationSize / entrySize / 3
	if n < 1 {
		n = 1
	}
	return n
}

// BatchAssignments splits msgs into batches of at most BatchSize(max,
// entrySize) entries each, preserving order.
func BatchAssignments(msgs []approval.AssignmentMessage, maxNotificationSize, entrySize int) [][]approval.AssignmentMessage {
	size := BatchSize(maxNotificationSize, entrySize)
	var batches [][]approval.AssignmentMessage
	for len(msgs) > 0 {
		n := size
		if n > len(msgs) {
			n = len(msgs)
		}
		batches = append(batches, msgs[:n])
		msgs = msgs[n:]
	}
	return batches
}

// BatchApprovals splits votes into batches of at most BatchSize(max,
// entrySize) entries each, preserving order.
func BatchApprovals(votes []approval.ApprovalVote, maxNotificationSize, entrySize int) [][]approval.ApprovalVote {
	size := BatchSize(maxNotificationSize, entrySize)
	var batches [][]approval.ApprovalVote
	for len(votes) > 0 {
		n := size
		if n > len(votes) {
			n = len(votes)
		}
		batches = append(batches, votes[:n])
		votes = votes[n:]
	}
	return batches
}
