// Package allocator issues sequential human-readable work item codes of the
// form PREFIX-NNNN. Allocation is scoped per prefix across the whole store:
// the next number is one past the highest numeric suffix currently in use, so
// deletions leave gaps that are never reused.
package allocator

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/spec-kit/issue-tracker/internal/domain"
)

// CodeSource provides the storage primitives the allocator needs. Both must
// run inside the caller's transaction: the prefix lock is what serializes
// concurrent allocations for the same prefix.
type CodeSource interface {
	AcquirePrefixLock(ctx context.Context, prefix string) error
	ListCodesByPrefix(ctx context.Context, prefix string) ([]string, error)
}

// NextCode allocates the next code for the project's prefix. The caller must
// hold an open transaction; the advisory lock taken here is released with it.
func NextCode(ctx context.Context, source CodeSource, project *domain.Project) (string, error) {
	prefix := project.CodePrefix()
	if prefix == "" {
		return "", fmt.Errorf("project %s has no usable code prefix", project.ID)
	}
	if err := source.AcquirePrefixLock(ctx, prefix); err != nil {
		return "", fmt.Errorf("lock prefix %s: %w", prefix, err)
	}
	codes, err := source.ListCodesByPrefix(ctx, prefix)
	if err != nil {
		return "", fmt.Errorf("scan codes for prefix %s: %w", prefix, err)
	}
	next := HighestNumber(prefix, codes) + 1
	return Format(prefix, next), nil
}

// Format renders a code, zero-padded to four digits and unbounded beyond.
func Format(prefix string, number int) string {
	return fmt.Sprintf("%s-%04d", prefix, number)
}

// HighestNumber parses the numeric suffix of every code sharing the prefix
// and returns the maximum. Malformed legacy codes are ignored, not errors.
func HighestNumber(prefix string, codes []string) int {
	highest := 0
	for _, code := range codes {
		n, ok := ParseSuffix(prefix, code)
		if ok && n > highest {
			highest = n
		}
	}
	return highest
}

// ParseSuffix extracts the numeric suffix of a code for the given prefix.
func ParseSuffix(prefix, code string) (int, bool) {
	rest, ok := strings.CutPrefix(code, prefix+"-")
	if !ok {
		return 0, false
	}
	n, err := strconv.Atoi(rest)
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}
