// conf/consts.go hard coded constants
package conf

const (
	SampleRate  = 32000 // Sample rate of the audio fed to the Perch model
	BitDepth    = 16    // Bit depth of the audio fed to the Perch model
	NumChannels = 1     // Number of channels of the audio fed to the Perch model
	ChunkLength = 5     // Length of audio data fed to the Perch model in seconds

	// CSV header written by the result cache, one row per detection
	CacheCSVHeader = "file_path,species,confidence,start_time,end_time"
)
