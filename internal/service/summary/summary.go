// Package summary reduces raw detector output to a verdict.
package summary

import (
	"slices"
	"strconv"

	"printwatch/internal/config"
	"printwatch/internal/model"
	"printwatch/internal/service/ai"
)

// Rules decide which classes raise the error and warning flags.
type Rules struct {
	ErrorClasses   []string
	WarningClasses []string
	MinConfidence  float64
}

// RulesFromConfig extracts the summarization rules from cfg.
func RulesFromConfig(cfg *config.Config) Rules {
	return Rules{
		ErrorClasses:   cfg.ErrorClasses,
		WarningClasses: cfg.WarningClasses,
		MinConfidence:  cfg.MinConfidence,
	}
}

// Summarize builds the verdict for result. Detections keep the raw order.
// The main class is the first detection with the strictly greatest
// confidence; the error and warning flags are evaluated independently.
func Summarize(result *ai.Result, rules Rules) model.Verdict {
	if result == nil || len(result.Boxes) == 0 {
		return model.EmptyVerdict()
	}

	verdict := model.Verdict{Detections: make([]model.Detection, 0, len(result.Boxes))}
	var mainClass *string
	mainConfidence := 0.0

	for _, box := range result.Boxes {
		name, ok := result.Names[box.ClassID]
		if !ok {
			name = strconv.Itoa(box.ClassID)
		}

		verdict.Detections = append(verdict.Detections, model.Detection{
			ClassID:    box.ClassID,
			ClassName:  name,
			Confidence: box.Confidence,
			Box:        toModelBox(box),
		})

		if box.Confidence > mainConfidence {
			mainConfidence = box.Confidence
			className := name
			mainClass = &className
		}

		if box.Confidence >= rules.MinConfidence {
			if slices.Contains(rules.ErrorClasses, name) {
				verdict.Error = true
			}
			if slices.Contains(rules.WarningClasses, name) {
				verdict.Warning = true
			}
		}
	}

	verdict.MainClass = mainClass
	verdict.MainConfidence = &mainConfidence
	return verdict
}

func toModelBox(box ai.Box) *model.Box {
	if box.Rect.Empty() {
		return nil
	}
	return &model.Box{
		X:      box.Rect.Min.X,
		Y:      box.Rect.Min.Y,
		Width:  box.Rect.Dx(),
		Height: box.Rect.Dy(),
	}
}
