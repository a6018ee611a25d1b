package event

import "strings"

// Source is a structured reference to where an event's content came from.
// It is immutable once the event is created; the ledger stores only the
// type and id columns, the rest is derivable.
type Source struct {
	Type     string `json:"type"`
	ID       string `json:"id"`
	URL      string `json:"url,omitempty"`
	Email    string `json:"email,omitempty"`
	Filename string `json:"filename,omitempty"`
}

// ParseSource turns an opaque source string into a structured Source.
//
// Recognized shapes:
//
//	mail:<address>:<message id>
//	drive:<file id> or a drive.google.com URL
//	anything else is treated as a filename
func ParseSource(raw string) Source {
	switch {
	case strings.HasPrefix(raw, "mail:"):
		parts := strings.SplitN(raw, ":", 3)
		src := Source{Type: "mail"}
		if len(parts) > 1 {
			src.Email = parts[1]
		}
		if len(parts) > 2 {
			src.ID = parts[2]
		} else if len(parts) > 1 {
			src.ID = parts[1]
		}
		return src
	case strings.HasPrefix(raw, "drive:"), strings.Contains(raw, "drive.google.com"):
		fileID := raw
		if strings.Contains(raw, "drive.google.com") {
			if idx := strings.Index(raw, "/d/"); idx >= 0 {
				fileID = raw[idx+len("/d/"):]
				if slash := strings.Index(fileID, "/"); slash >= 0 {
					fileID = fileID[:slash]
				}
			}
		} else {
			fileID = strings.TrimPrefix(raw, "drive:")
		}
		return Source{
			Type:     "drive",
			ID:       fileID,
			URL:      "https://drive.google.com/file/d/" + fileID,
			Filename: baseName(raw),
		}
	default:
		return Source{Type: "file", ID: raw, Filename: baseName(raw)}
	}
}

func baseName(path string) string {
	if idx := strings.LastIndex(path, "/"); idx >= 0 {
		return path[idx+1:]
	}
	return path
}
