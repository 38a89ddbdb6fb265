package idxbench

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.jetify.com/typeid"
)

// newRecordID generates a fresh opaque identifier for a session record.
func newRecordID() string {
	tid, err := typeid.WithPrefix("sess")
	if err != nil {
		// The fixed prefix is valid; this only guards a library change.
		tid, _ = typeid.WithPrefix("")
	}
	return tid.String()
}

// newTokenSalt returns a random salt shared by a record's token pair. The
// salt keeps tokens from one run distinct from tokens of earlier runs;
// within a run the sequence number alone guarantees uniqueness.
func newTokenSalt() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
}

// primaryToken derives the primary unique token from the sequence
// position and salt.
func primaryToken(seq int, salt string) string {
	return fmt.Sprintf("p-%08d-%s", seq, salt)
}

// secondaryToken derives the secondary unique token from the sequence
// position and salt.
func secondaryToken(seq int, salt string) string {
	return fmt.Sprintf("s-%08d-%s", seq, salt)
}
