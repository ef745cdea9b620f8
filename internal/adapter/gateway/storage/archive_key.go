package storage

import (
	"fmt"
	"path"
	"strconv"
	"strings"
)

// journalsDir is the archive sub-tree holding one document per record
const journalsDir = "journals"

// archiveName is the object name for a record id. Zero padding keeps
// lexical order equal to record order.
func archiveName(recordID int64) string {
	return fmt.Sprintf("%012d.json", recordID)
}

// parseArchiveName extracts the record id from an archive object name
func parseArchiveName(name string) (int64, bool) {
	base := path.Base(name)
	if !strings.HasSuffix(base, ".json") {
		return 0, false
	}
	id, err := strconv.ParseInt(strings.TrimSuffix(base, ".json"), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
