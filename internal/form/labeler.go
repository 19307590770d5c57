package form

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/WorldBank-Transport/DRIVER-Android-sub000/internal/schema"
	"github.com/WorldBank-Transport/DRIVER-Android-sub000/pkg/types"
)

const (
	labelFieldCount = 3
	labelSeparator  = " - "
)

// Labeler turns list section items into short human-readable row labels.
type Labeler struct {
	reader *schema.Reader
	logger *slog.Logger
}

// NewLabeler creates a Labeler.
func NewLabeler(reader *schema.Reader, logger *slog.Logger) *Labeler {
	return &Labeler{
		reader: reader,
		logger: logger.With(slog.String("component", "form.Labeler")),
	}
}

// LabelsFor returns one label per item, in item order. A label joins the
// non-empty values of the first three ordered fields with " - "; an item
// with none of them set is labeled "<defaultLabel> - <position>". Image
// fields never contribute text: the first image field among the three
// provides imagePaths instead, which is nil when there is none.
func (l *Labeler) LabelsFor(
	items []*types.Item,
	itemType *types.TypeDescriptor,
	defaultLabel string,
) (labels []string, imagePaths []string) {
	d := l.reader.Descriptor(itemType)

	var (
		textFields []string
		imageField string
	)
	if d == nil {
		l.logger.Warn("no item type, labels fall back to defaults", slog.String("default", defaultLabel))
	} else {
		for _, id := range d.Names[:min(labelFieldCount, len(d.Names))] {
			f, _ := d.Field(id)
			if l.reader.Kind(f) == types.KindImage {
				if imageField == "" {
					imageField = id
				}
				continue
			}
			textFields = append(textFields, id)
		}
	}

	labels = make([]string, len(items))
	if imageField != "" {
		imagePaths = make([]string, len(items))
	}
	for i, it := range items {
		parts := make([]string, 0, len(textFields))
		for _, id := range textFields {
			if s := types.String(it.Get(id)); s != "" {
				parts = append(parts, s)
			}
		}
		if len(parts) == 0 {
			labels[i] = fmt.Sprintf("%s%s%d", defaultLabel, labelSeparator, i+1)
		} else {
			labels[i] = strings.Join(parts, labelSeparator)
		}
		if imageField != "" {
			imagePaths[i] = types.String(it.Get(imageField))
		}
	}
	return labels, imagePaths
}
