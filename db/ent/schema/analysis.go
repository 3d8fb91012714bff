package schema

import (
	"encoding/json"
	"time"

	"entgo.io/ent"
	"entgo.io/ent/dialect/entsql"
	"entgo.io/ent/schema"
	"entgo.io/ent/schema/edge"
	"entgo.io/ent/schema/field"
	"entgo.io/ent/schema/index"
	"github.com/google/uuid"

	"github.com/joseph-ayodele/document-analyzer/constants"
	"github.com/joseph-ayodele/document-analyzer/db/ent/schema/utils"
)

// Analysis maps to the analyses table. A document has at most one.
type Analysis struct{ ent.Schema }

func (Analysis) Annotations() []schema.Annotation {
	return []schema.Annotation{
		entsql.Annotation{Table: "analyses"},
	}
}

func (Analysis) Fields() []ent.Field {
	return []ent.Field{
		field.UUID("id", uuid.UUID{}).Default(uuid.New).Immutable(),
		field.UUID("document_id", uuid.UUID{}).Unique().Immutable(),
		field.String("owner_id").NotEmpty().Immutable(),
		field.String("category").
			Validate(utils.EnumValidator(constants.AsStringSlice()...)),
		field.JSON("options", json.RawMessage{}),
		field.String("summary").Optional().Nillable(),
		field.JSON("extracted_data", json.RawMessage{}).Optional(),
		field.JSON("anomalies", json.RawMessage{}).Optional(),
		field.String("compliance_status").Optional().Nillable().
			Validate(utils.EnumValidator(
				string(constants.CompliancePass),
				string(constants.ComplianceWarning),
				string(constants.ComplianceFail),
				string(constants.ComplianceError),
			)),
		field.Time("created_at").Default(time.Now).Immutable(),
	}
}

func (Analysis) Edges() []ent.Edge {
	return []ent.Edge{
		edge.From("document", Document.Type).
			Ref("analysis").
			Field("document_id").
			Unique().
			Required().
			Immutable(),
	}
}

func (Analysis) Indexes() []ent.Index {
	return []ent.Index{
		index.Fields("owner_id", "created_at"),
	}
}
