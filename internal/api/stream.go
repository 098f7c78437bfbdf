package api

import (
	"bufio"
	"bytes"
	"io"
	"log"

	"github.com/tidwall/gjson"

	"github.com/loomhq/loom/internal/models"
)

const dataPrefix = "data: "

// Stream records can carry whole tool-output payloads, so give the scanner
// plenty of headroom over its 64KiB default.
const maxRecordBytes = 1024 * 1024

// ScanEvents reads the chat stream body, calling onRecord for each decoded
// record. Records are newline-delimited lines starting with "data: "; the
// payload is a JSON object. Chunk boundaries carry no meaning: a record
// split across two reads is reassembled before decoding. Malformed records
// are logged and skipped; the rest of the stream still decodes.
func ScanEvents(r io.Reader, onRecord func(models.StreamRecord)) error {
	scanner := bufio.NewScanner(r)
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, maxRecordBytes)

	for scanner.Scan() {
		line := scanner.Bytes()
		if !bytes.HasPrefix(line, []byte(dataPrefix)) {
			continue
		}

		payload := line[len(dataPrefix):]
		record, ok := parseRecord(payload)
		if !ok {
			log.Printf("skipping malformed stream record: %q", truncateForLog(payload))
			continue
		}

		onRecord(record)
	}

	return scanner.Err()
}

func parseRecord(payload []byte) (models.StreamRecord, bool) {
	if !gjson.ValidBytes(payload) {
		return models.StreamRecord{}, false
	}

	res := gjson.ParseBytes(payload)
	if !res.IsObject() {
		return models.StreamRecord{}, false
	}

	content := res.Get("content").String()

	var event models.StreamEvent
	switch models.StreamEventType(res.Get("type").String()) {
	case models.StreamEventTypeAnnouncement:
		event = models.StreamAnnouncement{Content: content}
	case models.StreamEventTypeToolStatus:
		event = models.StreamToolStatus{Content: content}
	case models.StreamEventTypeToolOutput:
		event = models.StreamToolOutput{Content: content, ToolName: res.Get("tool_name").String()}
	case models.StreamEventTypeResponse:
		event = models.StreamResponse{Content: content, Complete: res.Get("complete").Bool()}
	case models.StreamEventTypeError:
		event = models.StreamError{Content: content}
	default:
		event = models.StreamUnknown{RawType: res.Get("type").String(), Content: content}
	}

	record := models.StreamRecord{Event: event}
	if outputs := res.Get("tool_outputs"); outputs.IsArray() {
		record.HasSnapshot = true
		record.Snapshot = make([]string, 0, len(outputs.Array()))
		for _, item := range outputs.Array() {
			record.Snapshot = append(record.Snapshot, item.String())
		}
	}

	return record, true
}

func truncateForLog(payload []byte) []byte {
	const limit = 256
	if len(payload) <= limit {
		return payload
	}
	return payload[:limit]
}
