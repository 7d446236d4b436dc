// Package application contains the analysis pipeline use-case services.
package application

import (
	"archive/zip"
	"bytes"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/cfarleigh/releasegate/internal/domain/model"
)

// maxReportBytes caps how much of a single report file is read from the
// archive.
const maxReportBytes = 8 << 20

// Normalizer unpacks an artifact archive and converts the report formats it
// recognizes into normalized documents for the evidence index.
//
// Classification is by filename suffix: test-suite XML ("junit.xml") and
// vulnerability JSON ("security-report.json"); everything else is ignored. A
// file that matches but fails to parse is skipped with a warning so one
// malformed report cannot block ingestion of its siblings.
type Normalizer struct{}

// Normalize converts the bundle's recognized report files into documents,
// one per file, in archive order. An archive with no recognized files yields
// an empty slice, not an error; only an unreadable archive is an error.
func (Normalizer) Normalize(bundle model.ArtifactBundle, runID int64) ([]model.Document, error) {
	reader, err := zip.NewReader(bytes.NewReader(bundle.Archive), int64(len(bundle.Archive)))
	if err != nil {
		return nil, fmt.Errorf("opening artifact archive %q: %w", bundle.Name, err)
	}

	docs := make([]model.Document, 0, len(reader.File))

	for _, file := range reader.File {
		if file.FileInfo().IsDir() {
			continue
		}

		switch {
		case strings.HasSuffix(file.Name, "junit.xml"):
			text, err := summarizeJUnitFile(file)
			if err != nil {
				slog.Warn("skipping unparseable test report", "file", file.Name, "error", err)
				continue
			}
			docs = append(docs, model.Document{
				ID:     model.JUnitDocumentID(runID, file.Name),
				Text:   text,
				Source: file.Name,
				RunID:  runID,
				Type:   model.DocumentTypeJUnit,
			})

		case strings.HasSuffix(file.Name, "security-report.json"):
			text, err := summarizeSecurityFile(file)
			if err != nil {
				slog.Warn("skipping unparseable security report", "file", file.Name, "error", err)
				continue
			}
			docs = append(docs, model.Document{
				ID:     model.SecurityDocumentID(runID, file.Name),
				Text:   text,
				Source: file.Name,
				RunID:  runID,
				Type:   model.DocumentTypeSecurity,
			})
		}
	}

	return docs, nil
}

// --- JUnit test-suite XML ---

// junitSuite is one <testsuite> element.
type junitSuite struct {
	Name     string      `xml:"name,attr"`
	Tests    int         `xml:"tests,attr"`
	Failures int         `xml:"failures,attr"`
	Errors   int         `xml:"errors,attr"`
	Cases    []junitCase `xml:"testcase"`
}

// junitCase is one <testcase> element; Failure and Error are nil when the
// case passed.
type junitCase struct {
	Name    string        `xml:"name,attr"`
	Failure *junitOutcome `xml:"failure"`
	Error   *junitOutcome `xml:"error"`
}

// junitOutcome carries the failure/error payload. Body captures both plain
// character data and CDATA sections.
type junitOutcome struct {
	Message string `xml:"message,attr"`
	Body    string `xml:",chardata"`
}

// message returns the human-readable failure text, preferring element content
// over the message attribute. Empty when the report carries neither.
func (o *junitOutcome) message() string {
	if body := strings.TrimSpace(o.Body); body != "" {
		return body
	}
	return strings.TrimSpace(o.Message)
}

// parseJUnitSuites accepts either a <testsuites> wrapper or a bare
// <testsuite> root and returns the suites in document order.
func parseJUnitSuites(data []byte) ([]junitSuite, error) {
	var wrapper struct {
		XMLName xml.Name
		Suites  []junitSuite `xml:"testsuite"`
	}
	if err := xml.Unmarshal(data, &wrapper); err != nil {
		return nil, err
	}

	if wrapper.XMLName.Local == "testsuite" {
		var single junitSuite
		if err := xml.Unmarshal(data, &single); err != nil {
			return nil, err
		}
		return []junitSuite{single}, nil
	}

	return wrapper.Suites, nil
}

// summarizeJUnitFile renders a test-suite XML file as one summary line per
// suite followed by one line per failing or erroring test case.
func summarizeJUnitFile(file *zip.File) (string, error) {
	data, err := readArchiveFile(file)
	if err != nil {
		return "", err
	}

	suites, err := parseJUnitSuites(data)
	if err != nil {
		return "", fmt.Errorf("parsing test-suite XML: %w", err)
	}

	var b strings.Builder
	b.WriteString("Test Report Summary\n")

	for _, s := range suites {
		fmt.Fprintf(&b, "Suite: %s | tests: %d | failures: %d | errors: %d\n",
			s.Name, s.Tests, s.Failures, s.Errors)

		for _, tc := range s.Cases {
			outcome := tc.Failure
			if outcome == nil {
				outcome = tc.Error
			}
			if outcome == nil {
				continue
			}
			fmt.Fprintf(&b, "  - FAILED: %s | %s\n", tc.Name, outcome.message())
		}
	}

	return strings.TrimSpace(b.String()), nil
}

// --- Security vulnerability JSON ---

// securityReport is the vulnerability scanner output shape.
type securityReport struct {
	Summary struct {
		High   int `json:"high"`
		Medium int `json:"medium"`
	} `json:"summary"`
	Vulnerabilities []struct {
		Severity string `json:"severity"`
		ID       string `json:"id"`
		Package  string `json:"package"`
	} `json:"vulnerabilities"`
}

// summarizeSecurityFile renders a vulnerability JSON file as a header with
// severity counts followed by one line per vulnerability.
func summarizeSecurityFile(file *zip.File) (string, error) {
	data, err := readArchiveFile(file)
	if err != nil {
		return "", err
	}

	var report securityReport
	if err := json.Unmarshal(data, &report); err != nil {
		return "", fmt.Errorf("parsing security report JSON: %w", err)
	}

	var b strings.Builder
	b.WriteString("Security Report Summary:\n")
	fmt.Fprintf(&b, "High: %d, Medium: %d\n", report.Summary.High, report.Summary.Medium)

	for _, v := range report.Vulnerabilities {
		fmt.Fprintf(&b, "  - %s: %s in %s\n", v.Severity, v.ID, v.Package)
	}

	return strings.TrimSpace(b.String()), nil
}

// readArchiveFile reads one archive entry fully into memory.
func readArchiveFile(file *zip.File) ([]byte, error) {
	rc, err := file.Open()
	if err != nil {
		return nil, fmt.Errorf("opening %s in archive: %w", file.Name, err)
	}
	defer func() {
		_ = rc.Close()
	}()

	data, err := io.ReadAll(io.LimitReader(rc, maxReportBytes))
	if err != nil {
		return nil, fmt.Errorf("reading %s from archive: %w", file.Name, err)
	}

	return data, nil
}
