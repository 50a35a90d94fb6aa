package tasks

import (
	"fmt"
)

// ProgressUpdate represents a progress event during a pipeline run.
//
// Used to send real-time updates to the CLI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Pipeline phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data
}

// Pipeline phase enumeration
type Phase int

const (
	EnsureDirs Phase = iota
	ResolveFavorites
	FetchMetadata
	FetchCovers
	ProcessImages
	Assemble
	WriteManifest
)

func (p Phase) String() string {
	switch p {
	case EnsureDirs:
		return "ensure_dirs"
	case ResolveFavorites:
		return "resolve"
	case FetchMetadata:
		return "fetch_metadata"
	case FetchCovers:
		return "fetch_covers"
	case ProcessImages:
		return "process_images"
	case Assemble:
		return "assemble"
	case WriteManifest:
		return "write_manifest"
	default:
		return ""
	}
}

func phaseStartUpdate(phase Phase, total int, message string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   phase,
		Step:    0,
		Total:   total,
		Message: message,
	}
}

func reviewPageUpdate(page, count int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ResolveFavorites,
		Step:    page,
		Message: fmt.Sprintf("Page %d: %d reviews", page, count),
	}
}

func resolvedUpdate(ids []string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ResolveFavorites,
		Step:    len(ids),
		Total:   len(ids),
		Message: fmt.Sprintf("Resolved %d favorites", len(ids)),
		Data:    ids,
	}
}

func itemUpdate(phase Phase, step, total int, id string, err error) ProgressUpdate {
	if err != nil {
		return ProgressUpdate{
			Phase:   phase,
			Step:    step,
			Total:   total,
			Message: fmt.Sprintf("[%d/%d] ✗ %s: %v", step, total, id, err),
		}
	}
	return ProgressUpdate{
		Phase:   phase,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✓ %s", step, total, id),
	}
}

func manifestUpdate(path string, albums int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   WriteManifest,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Wrote %d albums to %s", albums, path),
		Data:    path,
	}
}
