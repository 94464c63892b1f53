package export

import (
	"strings"

	"siteplan/internal/domain"
)

// ComposeNotes builds a task's free-text notes field from its description
// and its topics. Each topic becomes a paragraph: the topic description is
// the heading line and every entry below a heading carries a "- " prefix;
// without a heading the entries are bare lines. Entries are the non-empty
// message contents in message order, then attachment references as
// "File: <name>", topic-level attachments before message-level ones.
// Non-empty blocks are joined by one blank line.
func ComposeNotes(task *domain.Task) string {
	var blocks []string
	if task.Description != "" {
		blocks = append(blocks, task.Description)
	}
	for i := range task.Topics {
		if p := topicParagraph(&task.Topics[i]); p != "" {
			blocks = append(blocks, p)
		}
	}
	return strings.Join(blocks, "\n\n")
}

func topicParagraph(topic *domain.Topic) string {
	var entries []string
	for _, m := range topic.Messages {
		if m.Content != nil && *m.Content != "" {
			entries = append(entries, *m.Content)
		}
	}
	for _, a := range topic.Attachments {
		entries = append(entries, "File: "+a.FileName)
	}
	for _, m := range topic.Messages {
		for _, a := range m.Attachments {
			entries = append(entries, "File: "+a.FileName)
		}
	}

	if topic.Description == "" && len(entries) == 0 {
		return ""
	}

	var lines []string
	prefix := ""
	if topic.Description != "" {
		lines = append(lines, topic.Description)
		prefix = "- "
	}
	for _, e := range entries {
		lines = append(lines, prefix+e)
	}
	return strings.Join(lines, "\n")
}
