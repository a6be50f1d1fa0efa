package vision

import (
	"fmt"

	ort "github.com/yalue/onnxruntime_go"
)

// genderAge is the raw output of the attribute model.
type genderAge struct {
	gender           string
	genderConfidence float32
	age              int
}

// attributePredictor predicts gender and age using the InsightFace genderage
// model.
type attributePredictor struct {
	session      *ort.AdvancedSession
	inputTensor  *ort.Tensor[float32]
	outputTensor *ort.Tensor[float32]
	inputW       int
	inputH       int
}

func newAttributePredictor(modelPath string) (*attributePredictor, error) {
	// InsightFace genderage model expects 96x96 input
	inputW, inputH := 96, 96

	inputShape := ort.NewShape(1, 3, int64(inputH), int64(inputW))
	inputTensor, err := ort.NewEmptyTensor[float32](inputShape)
	if err != nil {
		return nil, fmt.Errorf("create input tensor: %w", err)
	}

	// Output: [1, 3] — [gender_prob, age_value, ...]
	outputShape := ort.NewShape(1, 3)
	outputTensor, err := ort.NewEmptyTensor[float32](outputShape)
	if err != nil {
		inputTensor.Destroy()
		return nil, fmt.Errorf("create output tensor: %w", err)
	}

	session, err := ort.NewAdvancedSession(modelPath,
		[]string{"data"},
		[]string{"fc1"},
		[]ort.Value{inputTensor},
		[]ort.Value{outputTensor},
		nil,
	)
	if err != nil {
		inputTensor.Destroy()
		outputTensor.Destroy()
		return nil, fmt.Errorf("create attribute session: %w", err)
	}

	return &attributePredictor{
		session:      session,
		inputTensor:  inputTensor,
		outputTensor: outputTensor,
		inputW:       inputW,
		inputH:       inputH,
	}, nil
}

// predict runs gender/age prediction on a face crop. faceData is CHW
// [3, 96, 96], normalized.
func (p *attributePredictor) predict(faceData []float32) (*genderAge, error) {
	copy(p.inputTensor.GetData(), faceData)

	if err := p.session.Run(); err != nil {
		return nil, fmt.Errorf("run attributes: %w", err)
	}

	data := p.outputTensor.GetData()
	if len(data) < 3 {
		return nil, fmt.Errorf("unexpected output size: %d", len(data))
	}

	genderScore := data[0]
	ageRaw := data[1]

	gender := "female"
	genderConf := 1 - genderScore
	if genderScore > 0.5 {
		gender = "male"
		genderConf = genderScore
	}

	age := int(ageRaw)
	if age < 0 {
		age = 0
	}
	if age > 100 {
		age = 100
	}

	return &genderAge{
		gender:           gender,
		genderConfidence: genderConf,
		age:              age,
	}, nil
}

func (p *attributePredictor) Close() {
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
