package engine

// Engine loads recognition models.
type Engine interface {
	LoadModel(path string) (Model, error)
}

type Model interface {
	NewRecognizer(sampleRate float64) (Recognizer, error)
	Close()
}

// Recognizer is a stateful session over one audio stream. AcceptWaveform
// reports true once the engine considers an utterance complete; Result then
// returns that utterance's payload. FinalResult flushes buffered audio.
type Recognizer interface {
	AcceptWaveform(pcm []byte) (bool, error)
	Result() string
	FinalResult() string
	Close()
}
