package updates

import (
	"fmt"

	"github.com/sevigo/shiny-updates/internal/core"
)

func progressText(verb core.Verb, name string) string {
	switch verb {
	case core.VerbInstall:
		return fmt.Sprintf("Installing %s...", name)
	case core.VerbDelete:
		return fmt.Sprintf("Deleting %s...", name)
	default:
		return fmt.Sprintf("Updating %s...", name)
	}
}

func successText(verb core.Verb, name string) string {
	switch verb {
	case core.VerbInstall:
		return fmt.Sprintf("%s installed!", name)
	case core.VerbDelete:
		return fmt.Sprintf("%s deleted.", name)
	default:
		return fmt.Sprintf("%s updated!", name)
	}
}

func failureText(verb core.Verb, msg string) string {
	switch verb {
	case core.VerbInstall:
		return "Installation failed: " + msg
	case core.VerbDelete:
		return "Deletion failed: " + msg
	default:
		return "Update failed: " + msg
	}
}

func summaryText(sum BulkSummary) string {
	if sum.Failed == 0 && sum.Cancelled == 0 {
		return fmt.Sprintf("All updates have been completed (%d).", sum.Succeeded)
	}
	return fmt.Sprintf("%d updated, %d failed, %d cancelled.", sum.Succeeded, sum.Failed, sum.Cancelled)
}
