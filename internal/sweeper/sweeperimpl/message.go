package sweeperimpl

import (
	"fmt"
	"strings"
	"time"

	"github.com/orgball2608/viralink-scheduler/internal/domain"
	"github.com/orgball2608/viralink-scheduler/pkg/formatter"
)

const captionPreview = 80

func platformList(platforms []domain.Platform) string {
	names := make([]string, 0, len(platforms))
	for _, p := range platforms {
		names = append(names, string(p))
	}
	return strings.Join(names, ", ")
}

func failureMessage(p domain.Post, reason string) string {
	var sb strings.Builder
	sb.WriteString("*Publish failed*\n")
	fmt.Fprintf(&sb, "Post: %s\n", formatter.EscapeMarkdownV2(p.ID))
	fmt.Fprintf(&sb, "Platforms: %s\n", formatter.EscapeMarkdownV2(platformList(p.Platforms)))
	if p.PublishAt != nil {
		fmt.Fprintf(&sb, "Due: %s\n", formatter.EscapeMarkdownV2(p.PublishAt.Format(time.RFC3339)))
	}
	fmt.Fprintf(&sb, "Caption: %s\n", formatter.EscapeMarkdownV2(formatter.Truncate(p.Content, captionPreview)))
	fmt.Fprintf(&sb, "Reason: %s", formatter.EscapeMarkdownV2(reason))
	return sb.String()
}

func publishedUnrecordedMessage(p domain.Post, err error) string {
	return fmt.Sprintf("*Published but not recorded*\nPost: %s\nError: %s",
		formatter.EscapeMarkdownV2(p.ID),
		formatter.EscapeMarkdownV2(err.Error()))
}

// digestMessage lists failed posts; failures newer than since are marked.
func digestMessage(posts []domain.Post, since time.Time) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "*%d scheduled posts need a new publish time*\n", len(posts))
	for _, p := range posts {
		marker := ""
		if p.PublishFailure.At.After(since) {
			marker = " \\(new\\)"
		}
		fmt.Fprintf(&sb, "\n%s%s: %s",
			formatter.EscapeMarkdownV2(p.ID),
			marker,
			formatter.EscapeMarkdownV2(formatter.Truncate(p.PublishFailure.Reason, captionPreview)))
	}
	return sb.String()
}
