package vision

import (
	"fmt"
	"math"

	ort "github.com/yalue/onnxruntime_go"
)

// emotionLabels follow the FER+ class order.
var emotionLabels = []string{
	"neutral", "happiness", "surprise", "sadness",
	"anger", "disgust", "fear", "contempt",
}

// emotionPredictor classifies facial expression using the FER+ ONNX model.
type emotionPredictor struct {
	session      *ort.AdvancedSession
	inputTensor  *ort.Tensor[float32]
	outputTensor *ort.Tensor[float32]
	inputW       int
	inputH       int
}

func newEmotionPredictor(modelPath string) (*emotionPredictor, error) {
	// emotion-ferplus expects a 64x64 grayscale input
	inputW, inputH := 64, 64

	inputShape := ort.NewShape(1, 1, int64(inputH), int64(inputW))
	inputTensor, err := ort.NewEmptyTensor[float32](inputShape)
	if err != nil {
		return nil, fmt.Errorf("create input tensor: %w", err)
	}

	outputShape := ort.NewShape(1, int64(len(emotionLabels)))
	outputTensor, err := ort.NewEmptyTensor[float32](outputShape)
	if err != nil {
		inputTensor.Destroy()
		return nil, fmt.Errorf("create output tensor: %w", err)
	}

	session, err := ort.NewAdvancedSession(modelPath,
		[]string{"Input3"},
		[]string{"Plus692_Output_0"},
		[]ort.Value{inputTensor},
		[]ort.Value{outputTensor},
		nil,
	)
	if err != nil {
		inputTensor.Destroy()
		outputTensor.Destroy()
		return nil, fmt.Errorf("create emotion session: %w", err)
	}

	return &emotionPredictor{
		session:      session,
		inputTensor:  inputTensor,
		outputTensor: outputTensor,
		inputW:       inputW,
		inputH:       inputH,
	}, nil
}

// predict runs emotion classification on a face crop. faceData is a
// grayscale [1, 64, 64] plane. Returns the dominant label and the softmax
// score per class.
func (p *emotionPredictor) predict(faceData []float32) (string, map[string]float32, error) {
	copy(p.inputTensor.GetData(), faceData)

	if err := p.session.Run(); err != nil {
		return "", nil, fmt.Errorf("run emotion: %w", err)
	}

	logits := p.outputTensor.GetData()
	if len(logits) < len(emotionLabels) {
		return "", nil, fmt.Errorf("unexpected output size: %d", len(logits))
	}

	scores := softmax(logits[:len(emotionLabels)])

	best := 0
	scoreMap := make(map[string]float32, len(emotionLabels))
	for i, label := range emotionLabels {
		scoreMap[label] = scores[i]
		if scores[i] > scores[best] {
			best = i
		}
	}

	return emotionLabels[best], scoreMap, nil
}

func (p *emotionPredictor) Close() {
	if p.session != nil {
		p.session.Destroy()
	}
	if p.inputTensor != nil {
		p.inputTensor.Destroy()
	}
	if p.outputTensor != nil {
		p.outputTensor.Destroy()
	}
}

func softmax(logits []float32) []float32 {
	maxLogit := logits[0]
	for _, v := range logits[1:] {
		if v > maxLogit {
			maxLogit = v
		}
	}

	out := make([]float32, len(logits))
	var sum float64
	for i, v := range logits {
		e := math.Exp(float64(v - maxLogit))
		out[i] = float32(e)
		sum += e
	}
	for i := range out {
		out[i] = float32(float64(out[i]) / sum)
	}
	return out
}
