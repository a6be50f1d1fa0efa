package vision

import (
	"fmt"
	"image"
	"log/slog"
	"path/filepath"

	"github.com/Sanjanaa7/face-recognition/internal/config"
)

// ONNXProvider implements Provider with local ONNX Runtime inference:
// RetinaFace detection, ArcFace embeddings, InsightFace gender/age, and
// FER+ emotion. The caller must initialize the ONNX runtime environment
// before constructing it.
type ONNXProvider struct {
	detector     *detector
	embedder     *embedder
	attributes   *attributePredictor
	emotion      *emotionPredictor
	maxImageSize int
}

// NewONNXProvider loads all models from cfg.ModelsDir.
func NewONNXProvider(cfg config.VisionConfig) (*ONNXProvider, error) {
	detPath := filepath.Join(cfg.ModelsDir, "det_10g.onnx")
	embPath := filepath.Join(cfg.ModelsDir, "w600k_r50.onnx")
	attrPath := filepath.Join(cfg.ModelsDir, "genderage.onnx")
	emoPath := filepath.Join(cfg.ModelsDir, "emotion-ferplus-8.onnx")

	slog.Info("loading detection model", "path", detPath)
	det, err := newDetector(detPath, float32(cfg.DetectionThreshold))
	if err != nil {
		return nil, fmt.Errorf("load detector: %w", err)
	}

	slog.Info("loading embedding model", "path", embPath)
	emb, err := newEmbedder(embPath)
	if err != nil {
		det.Close()
		return nil, fmt.Errorf("load embedder: %w", err)
	}

	slog.Info("loading attribute model", "path", attrPath)
	attr, err := newAttributePredictor(attrPath)
	if err != nil {
		det.Close()
		emb.Close()
		return nil, fmt.Errorf("load attributes: %w", err)
	}

	slog.Info("loading emotion model", "path", emoPath)
	emo, err := newEmotionPredictor(emoPath)
	if err != nil {
		det.Close()
		emb.Close()
		attr.Close()
		return nil, fmt.Errorf("load emotion: %w", err)
	}

	slog.Info("vision provider ready")

	return &ONNXProvider{
		detector:     det,
		embedder:     emb,
		attributes:   attr,
		emotion:      emo,
		maxImageSize: cfg.MaxImageSize,
	}, nil
}

func (p *ONNXProvider) DecodeImage(data []byte) (image.Image, error) {
	return decodeImage(data, p.maxImageSize)
}

func (p *ONNXProvider) DetectFace(img image.Image) (*Detection, error) {
	candidates, err := p.runDetection(img)
	if err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		return nil, nil
	}

	d := toDetection(candidates[0], img.Bounds())
	return &d, nil
}

func (p *ONNXProvider) DetectFaces(img image.Image) ([]Detection, int, int, error) {
	bounds := img.Bounds()

	candidates, err := p.runDetection(img)
	if err != nil {
		return nil, 0, 0, err
	}

	detections := make([]Detection, 0, len(candidates))
	for _, c := range candidates {
		detections = append(detections, toDetection(c, bounds))
	}
	return detections, bounds.Dx(), bounds.Dy(), nil
}

func (p *ONNXProvider) Embedding(img image.Image, box *BoundingBox) ([]float32, error) {
	if box == nil {
		det, err := p.DetectFace(img)
		if err != nil {
			return nil, err
		}
		if det == nil {
			return nil, nil
		}
		box = &det.Box
	}

	crop := cropFace(img, *box)
	if crop == nil {
		return nil, nil
	}

	input := preprocessForEmbedding(crop, p.embedder.inputW, p.embedder.inputH)
	vec, err := p.embedder.extract(input)
	if err != nil {
		return nil, fmt.Errorf("embed: %w", err)
	}
	return vec, nil
}

func (p *ONNXProvider) Landmarks(img image.Image) (*LandmarkSet, error) {
	candidates, err := p.runDetection(img)
	if err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		return nil, nil
	}

	kp := candidates[0].keypoints
	all := make([]Landmark, len(kp))
	for i, point := range kp {
		all[i] = Landmark{Index: i, X: point[0], Y: point[1]}
	}

	// RetinaFace keypoint order: left eye, right eye, nose tip,
	// left mouth corner, right mouth corner.
	return &LandmarkSet{
		All: all,
		Categorized: map[string][]Landmark{
			"left_eye":  {all[0]},
			"right_eye": {all[1]},
			"nose":      {all[2]},
			"mouth":     {all[3], all[4]},
		},
	}, nil
}

func (p *ONNXProvider) AnalyzeDeep(img image.Image, box *BoundingBox) (*DeepAnalysis, error) {
	if box == nil {
		det, err := p.DetectFace(img)
		if err != nil {
			return nil, err
		}
		if det == nil {
			return nil, nil
		}
		box = &det.Box
	}

	crop := cropFace(img, *box)
	if crop == nil {
		return nil, nil
	}

	attrInput := preprocessForAttributes(crop, p.attributes.inputW, p.attributes.inputH)
	ga, err := p.attributes.predict(attrInput)
	if err != nil {
		return nil, fmt.Errorf("attributes: %w", err)
	}

	emoInput := imageToGrayPlane(crop, p.emotion.inputW, p.emotion.inputH)
	emotion, scores, err := p.emotion.predict(emoInput)
	if err != nil {
		return nil, fmt.Errorf("emotion: %w", err)
	}

	return &DeepAnalysis{
		Emotion:          emotion,
		EmotionScores:    scores,
		Age:              ga.age,
		Gender:           ga.gender,
		GenderConfidence: ga.genderConfidence,
	}, nil
}

func (p *ONNXProvider) ModelName() string {
	return EmbeddingModelName
}

func (p *ONNXProvider) Close() {
	if p.detector != nil {
		p.detector.Close()
	}
	if p.embedder != nil {
		p.embedder.Close()
	}
	if p.attributes != nil {
		p.attributes.Close()
	}
	if p.emotion != nil {
		p.emotion.Close()
	}
}

func (p *ONNXProvider) runDetection(img image.Image) ([]faceCandidate, error) {
	bounds := img.Bounds()
	input := preprocessForDetection(img, p.detector.inputW, p.detector.inputH)
	return p.detector.detect(input, bounds.Dx(), bounds.Dy())
}

// toDetection converts a corner-form candidate to the public box form,
// clamped to the image.
func toDetection(c faceCandidate, bounds image.Rectangle) Detection {
	x := int(c.bbox[0])
	y := int(c.bbox[1])
	w := int(c.bbox[2]) - x
	h := int(c.bbox[3]) - y

	if x < 0 {
		x = 0
	}
	if y < 0 {
		y = 0
	}
	if x+w > bounds.Dx() {
		w = bounds.Dx() - x
	}
	if y+h > bounds.Dy() {
		h = bounds.Dy() - y
	}

	return Detection{
		Box:        BoundingBox{X: x, Y: y, Width: w, Height: h},
		Confidence: c.confidence,
	}
}

func preprocessForDetection(img image.Image, targetW, targetH int) []float32 {
	return imageToFloat32CHW(img, targetW, targetH, [3]float32{127.5, 127.5, 127.5}, [3]float32{128.0, 128.0, 128.0})
}

func preprocessForEmbedding(img image.Image, targetW, targetH int) []float32 {
	return imageToFloat32CHW(img, targetW, targetH, [3]float32{127.5, 127.5, 127.5}, [3]float32{127.5, 127.5, 127.5})
}

func preprocessForAttributes(img image.Image, targetW, targetH int) []float32 {
	return imageToFloat32CHW(img, targetW, targetH, [3]float32{0, 0, 0}, [3]float32{1, 1, 1})
}
