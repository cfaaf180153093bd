package onnx

import (
	"sort"

	"inferd/internal/core/normalize"
)

// decodeProbs copies a flat probability head into float64s
func decodeProbs(output []float32, classes int) []float64 {
	if classes > len(output) {
		classes = len(output)
	}
	probs := make([]float64, classes)
	for i := 0; i < classes; i++ {
		probs[i] = float64(output[i])
	}
	return probs
}

// decodeBoxes turns a YOLO style [4+classes, anchors] head into scored boxes
// in original-image coordinates, confidence filtered and NMS deduplicated
func decodeBoxes(output []float32, classes, anchors, inputSize int, imgW, imgH int, conf, iou float64) []normalize.Box {
	if len(output) < (4+classes)*anchors {
		return nil
	}

	sx := float64(imgW) / float64(inputSize)
	sy := float64(imgH) / float64(inputSize)

	var boxes []normalize.Box
	for i := 0; i < anchors; i++ {
		classID, score := 0, float32(0)
		for c := 0; c < classes; c++ {
			if v := output[(4+c)*anchors+i]; v > score {
				score = v
				classID = c
			}
		}
		if float64(score) < conf {
			continue
		}

		xc := float64(output[i])
		yc := float64(output[anchors+i])
		w := float64(output[2*anchors+i])
		h := float64(output[3*anchors+i])

		boxes = append(boxes, normalize.Box{
			XYXY: [4]float64{
				(xc - w/2) * sx,
				(yc - h/2) * sy,
				(xc + w/2) * sx,
				(yc + h/2) * sy,
			},
			Score:   float64(score),
			ClassID: classID,
		})
	}

	return nms(boxes, iou)
}

// nms keeps the highest scoring box of every overlapping cluster
func nms(boxes []normalize.Box, iou float64) []normalize.Box {
	if len(boxes) == 0 {
		return boxes
	}
	sort.SliceStable(boxes, func(a, b int) bool { return boxes[a].Score > boxes[b].Score })

	kept := boxes[:0:0]
	for _, b := range boxes {
		overlap := false
		for _, k := range kept {
			if k.ClassID == b.ClassID && boxIoU(k.XYXY, b.XYXY) > iou {
				overlap = true
				break
			}
		}
		if !overlap {
			kept = append(kept, b)
		}
	}
	return kept
}

func boxIoU(a, b [4]float64) float64 {
	ix := max(0, min(a[2], b[2])-max(a[0], b[0]))
	iy := max(0, min(a[3], b[3])-max(a[1], b[1]))
	inter := ix * iy
	if inter <= 0 {
		return 0
	}
	areaA := (a[2] - a[0]) * (a[3] - a[1])
	areaB := (b[2] - b[0]) * (b[3] - b[1])
	union := areaA + areaB - inter
	if union <= 0 {
		return 0
	}
	return inter / union
}
