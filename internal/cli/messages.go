package cli

const (
	usageLine        = "Usage: voskscribe <audio_path>"
	formatDiagnostic = "Audio file must be WAV format mono PCM 16-bit 16kHz"
)

func noSpeechHint() string {
	return "No speech detected. Check that the recording is not silent and that the model matches the spoken language."
}
