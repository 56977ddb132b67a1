package index

import (
	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/mapping"
)

// recordDocType is the bleve document "_type" every indexed record is
// mapped under; the engine owns exactly one document type.
const recordDocType = "record"

// buildMapping constructs the typed schema from §3 of the data model:
// content_tokens is the sole analyzed field; jcn/cust_status2/prefecture/
// city/class names are exact-match keyword fields; amounts are numeric;
// everything else is stored-only and excluded from the inverted index.
func buildMapping() *mapping.IndexMappingImpl {
	analyzed := bleve.NewTextFieldMapping()
	analyzed.Store = false
	analyzed.IncludeTermVectors = true

	keyword := func() *mapping.FieldMapping {
		f := bleve.NewTextFieldMapping()
		f.Analyzer = "keyword"
		f.Store = true
		return f
	}

	numeric := func() *mapping.FieldMapping {
		f := bleve.NewNumericFieldMapping()
		f.Store = true
		f.Index = false
		return f
	}

	storedOnly := func() *mapping.FieldMapping {
		f := bleve.NewTextFieldMapping()
		f.Store = true
		f.Index = false
		return f
	}

	doc := bleve.NewDocumentMapping()
	doc.AddFieldMappingsAt("content_tokens", analyzed)

	doc.AddFieldMappingsAt("jcn", keyword())
	doc.AddFieldMappingsAt("cust_status2", keyword())
	doc.AddFieldMappingsAt("prefecture", keyword())
	doc.AddFieldMappingsAt("city", keyword())
	doc.AddFieldMappingsAt("large_class_name", keyword())
	doc.AddFieldMappingsAt("middle_class_name", keyword())

	doc.AddFieldMappingsAt("curr_setlmnt_taking_amt", numeric())
	doc.AddFieldMappingsAt("employee_all_num", numeric())

	for _, f := range []string{
		"id", "url", "url_name", "company_name_kj", "company_address_all",
		"district_finalized_cd", "branch_name_cd", "main_domain_url",
	} {
		doc.AddFieldMappingsAt(f, storedOnly())
	}

	im := bleve.NewIndexMapping()
	im.DefaultMapping = doc
	im.TypeField = "_type"
	im.AddDocumentMapping(recordDocType, doc)
	return im
}

// indexableRecord is the map bleve actually analyzes and stores; built from
// domain.Record in engine.go.
type indexableRecord map[string]interface{}
