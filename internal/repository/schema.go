package repository

import (
	"context"
	"fmt"

	"entgo.io/ent/dialect"
	"entgo.io/ent/dialect/sql/schema"
	"entgo.io/ent/schema/field"
)

const (
	TableFormSubmissions = "form_submissions"
	TableEmailLogs       = "email_logs"
)

var textType = map[string]string{dialect.Postgres: "text", dialect.SQLite: "text"}

var (
	// FormSubmissionsColumns holds the columns for the "form_submissions" table.
	FormSubmissionsColumns = []*schema.Column{
		{Name: "id", Type: field.TypeInt64, Increment: true},
		{Name: "acknowledgment_id", Type: field.TypeString, Unique: true, Size: 50},
		{Name: "form_type", Type: field.TypeString, Size: 100},
		{Name: "confidence_score", Type: field.TypeFloat64, Nullable: true},
		{Name: "extracted_text", Type: field.TypeString, Nullable: true, SchemaType: textType},
		{Name: "structured_data", Type: field.TypeJSON, Nullable: true},
		{Name: "missing_fields", Type: field.TypeJSON, Nullable: true},
		{Name: "status", Type: field.TypeString, Size: 50, Default: "pending"},
		{Name: "customer_email", Type: field.TypeString, Nullable: true, Size: 255},
		{Name: "customer_name", Type: field.TypeString, Nullable: true, Size: 255},
		{Name: "branch_code", Type: field.TypeString, Nullable: true, Size: 20},
		{Name: "uploaded_file_path", Type: field.TypeString, Nullable: true, Size: 500},
		{Name: "original_filename", Type: field.TypeString, Nullable: true, Size: 255},
		{Name: "content_type", Type: field.TypeString, Nullable: true, Size: 100},
		{Name: "created_at", Type: field.TypeTime},
		{Name: "updated_at", Type: field.TypeTime},
	}
	// FormSubmissionsTable holds the schema information for the "form_submissions" table.
	FormSubmissionsTable = &schema.Table{
		Name:       TableFormSubmissions,
		Columns:    FormSubmissionsColumns,
		PrimaryKey: []*schema.Column{FormSubmissionsColumns[0]},
		Indexes: []*schema.Index{
			{Name: "formsubmission_created_at", Columns: []*schema.Column{FormSubmissionsColumns[14]}},
			{Name: "formsubmission_form_type", Columns: []*schema.Column{FormSubmissionsColumns[2]}},
		},
	}

	// EmailLogsColumns holds the columns for the "email_logs" table.
	EmailLogsColumns = []*schema.Column{
		{Name: "id", Type: field.TypeInt64, Increment: true},
		{Name: "email_type", Type: field.TypeString, Size: 50},
		{Name: "recipient", Type: field.TypeString, Size: 255},
		{Name: "subject", Type: field.TypeString, Nullable: true, Size: 500},
		{Name: "body", Type: field.TypeString, Nullable: true, SchemaType: textType},
		{Name: "sent_at", Type: field.TypeTime},
		{Name: "status", Type: field.TypeString, Size: 50, Default: "sent"},
		{Name: "error_message", Type: field.TypeString, Nullable: true, SchemaType: textType},
		{Name: "submission_id", Type: field.TypeInt64},
	}
	// EmailLogsTable holds the schema information for the "email_logs" table.
	EmailLogsTable = &schema.Table{
		Name:       TableEmailLogs,
		Columns:    EmailLogsColumns,
		PrimaryKey: []*schema.Column{EmailLogsColumns[0]},
		ForeignKeys: []*schema.ForeignKey{
			{
				Symbol:     "email_logs_form_submissions_email_logs",
				Columns:    []*schema.Column{EmailLogsColumns[8]},
				RefColumns: []*schema.Column{FormSubmissionsColumns[0]},
				OnDelete:   schema.Cascade,
			},
		},
		Indexes: []*schema.Index{
			{Name: "emaillog_submission_id", Columns: []*schema.Column{EmailLogsColumns[8]}},
		},
	}

	// Tables holds all the tables in the schema.
	Tables = []*schema.Table{
		FormSubmissionsTable,
		EmailLogsTable,
	}
)

func init() {
	EmailLogsTable.ForeignKeys[0].RefTable = FormSubmissionsTable
}

// Migrate creates or updates both tables. It is additive: columns and indexes are never dropped.
func Migrate(ctx context.Context, db *DB) error {
	m, err := schema.NewMigrate(db.Driver)
	if err != nil {
		return fmt.Errorf("init migrate: %w", err)
	}
	if err := m.Create(ctx, Tables...); err != nil {
		return fmt.Errorf("migrate schema: %w", err)
	}
	return nil
}
