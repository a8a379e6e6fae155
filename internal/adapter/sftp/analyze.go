package sftp

import (
	"crypto/sha256"
	"encoding/hex"
	"math"
	"path"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"github.com/Lucy-dot-dot/ssh-honeypot-sub000/internal/logger"
)

// highEntropyThreshold flags likely packed or encrypted payloads.
// Random data scores close to 8 bits per byte; text sits around 4-5.
const highEntropyThreshold = 7.5

// analysis summarizes an uploaded payload for the recorder.
type analysis struct {
	SHA256         string
	ClaimedMIME    string
	DetectedMIME   string
	FormatMismatch bool
	Entropy        float64
}

// mimeByExtension maps common attack-tool extensions to the MIME type
// the filename claims to be.
var mimeByExtension = map[string]string{
	"exe":  "application/x-executable",
	"com":  "application/x-executable",
	"scr":  "application/x-executable",
	"dll":  "application/x-msdownload",
	"sh":   "application/x-shellscript",
	"bash": "application/x-shellscript",
	"py":   "text/x-python",
	"pl":   "text/x-perl",
	"php":  "text/x-php",
	"js":   "text/javascript",
	"jar":  "application/java-archive",
	"zip":  "application/zip",
	"rar":  "application/x-rar-compressed",
	"7z":   "application/x-7z-compressed",
	"tar":  "application/x-tar",
	"gz":   "application/gzip",
	"pdf":  "application/pdf",
	"doc":  "application/msword",
	"docx": "application/msword",
	"xls":  "application/vnd.ms-excel",
	"xlsx": "application/vnd.ms-excel",
	"txt":  "text/plain",
	"html": "text/html",
	"htm":  "text/html",
	"xml":  "text/xml",
	"json": "application/json",
	"bin":  "application/octet-stream",
}

// analyzeUpload fingerprints an uploaded file: content hash, the MIME
// type its name claims versus what the magic bytes say, and Shannon
// entropy. A claimed/detected mismatch usually means a payload
// disguised behind a harmless extension.
func analyzeUpload(filepath string, data []byte) analysis {
	sum := sha256.Sum256(data)

	claimed := mimeFromExtension(filepath)
	detected := ""
	if len(data) > 0 {
		detected = mimetype.Detect(data).String()
		// mimetype appends parameters like "; charset=utf-8".
		if idx := strings.IndexByte(detected, ';'); idx >= 0 {
			detected = strings.TrimSpace(detected[:idx])
		}
	}

	mismatch := claimed != "" && detected != "" && claimed != detected
	entropy := shannonEntropy(data)

	if mismatch {
		logger.Warn("uploaded file format mismatch",
			logger.KeyPath, filepath,
			"claimed", claimed,
			"detected", detected)
	}
	if entropy > highEntropyThreshold {
		logger.Warn("high entropy upload, possible packed or encrypted content",
			logger.KeyPath, filepath,
			"entropy", entropy)
	}

	return analysis{
		SHA256:         hex.EncodeToString(sum[:]),
		ClaimedMIME:    claimed,
		DetectedMIME:   detected,
		FormatMismatch: mismatch,
		Entropy:        entropy,
	}
}

// mimeFromExtension returns the MIME type the file extension claims, or
// "" for unknown extensions.
func mimeFromExtension(filepath string) string {
	ext := strings.ToLower(strings.TrimPrefix(path.Ext(filepath), "."))
	return mimeByExtension[ext]
}

// shannonEntropy measures bits of entropy per byte, 0 through 8.
func shannonEntropy(data []byte) float64 {
	if len(data) == 0 {
		return 0
	}

	var counts [256]int
	for _, b := range data {
		counts[b]++
	}

	total := float64(len(data))
	entropy := 0.0
	for _, count := range counts {
		if count == 0 {
			continue
		}
		p := float64(count) / total
		entropy -= p * math.Log2(p)
	}
	return entropy
}
