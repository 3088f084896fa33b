package revision

import (
	"github.com/bytedance/sonic"

	"github.com/jschulte/rtf-toolkit/document"
)

// Report is a serializable summary of a document's tracked changes, suitable
// for feeding review tooling.
type Report struct {
	Count   int      `json:"count"`
	Changes []Change `json:"changes"`
}

// BuildReport extracts all changes from the document into a Report.
func BuildReport(doc *document.Document) Report {
	changes := Extract(doc)
	return Report{Count: len(changes), Changes: changes}
}

// MarshalReport renders a Report as JSON.
func MarshalReport(r Report) ([]byte, error) {
	return sonic.Marshal(r)
}

// UnmarshalReport parses a JSON report produced by MarshalReport.
func UnmarshalReport(data []byte) (Report, error) {
	var r Report
	err := sonic.Unmarshal(data, &r)
	return r, err
}
