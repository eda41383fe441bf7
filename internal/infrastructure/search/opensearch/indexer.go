// Package opensearch indexes analyzed prescriptions for full-text search over
// their raw OCR text and drug names.
package opensearch

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/opensearch-project/opensearch-go/v3"
	"github.com/opensearch-project/opensearch-go/v3/opensearchapi"

	appn "github.com/turtacn/MedRx-Intelligence/internal/application/prescription"
	"github.com/turtacn/MedRx-Intelligence/internal/config"
	"github.com/turtacn/MedRx-Intelligence/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/MedRx-Intelligence/pkg/errors"
)

// Indexer implements the application-layer Indexer on OpenSearch.
type Indexer struct {
	client *opensearchapi.Client
	index  string
	logger logging.Logger
}

// NewIndexer builds the OpenSearch client.
func NewIndexer(cfg config.OpenSearchConfig, logger logging.Logger) (*Indexer, error) {
	if !cfg.Enabled() {
		return nil, errors.New(errors.ErrCodeBadRequest, "opensearch addresses not configured")
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	client, err := opensearchapi.NewClient(opensearchapi.Config{
		Client: opensearch.Config{
			Addresses: cfg.Addresses,
			Username:  cfg.Username,
			Password:  cfg.Password,
		},
	})
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeExternalService, "create opensearch client")
	}
	return &Indexer{client: client, index: cfg.Index, logger: logger.Named("opensearch")}, nil
}

// IndexPrescription upserts the document keyed by prescription id, so
// re-analysis overwrites rather than duplicates.
func (i *Indexer) IndexPrescription(ctx context.Context, doc *appn.IndexDoc) error {
	body, err := json.Marshal(doc)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeSerialization, "encode index document")
	}
	resp, err := i.client.Index(ctx, opensearchapi.IndexReq{
		Index:      i.index,
		DocumentID: fmt.Sprintf("%d", doc.PrescriptionID),
		Body:       strings.NewReader(string(body)),
	})
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeExternalService, "index prescription")
	}
	if resp != nil && resp.Inspect().Response != nil {
		io.Copy(io.Discard, resp.Inspect().Response.Body)
		resp.Inspect().Response.Body.Close()
	}
	return nil
}
