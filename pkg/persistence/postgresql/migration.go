package postgresql

func migrations() map[int]string {
	return map[int]string{
		1: `
			CREATE TABLE workflows (
				id VARCHAR(255) PRIMARY KEY,
				name VARCHAR(255) NOT NULL,
				active BOOLEAN NOT NULL DEFAULT FALSE,
				nodes JSONB NOT NULL DEFAULT '[]',
				connections JSONB NOT NULL DEFAULT '{}',
				owner_id VARCHAR(255),
				created_at TIMESTAMP WITH TIME ZONE NOT NULL,
				updated_at TIMESTAMP WITH TIME ZONE NOT NULL
			);

			CREATE INDEX idx_workflows_owner_id ON workflows(owner_id);
			CREATE INDEX idx_workflows_active ON workflows(active);

			CREATE TABLE runs (
				id VARCHAR(255) PRIMARY KEY,
				workflow_id VARCHAR(255) NOT NULL,
				user_id VARCHAR(255),
				mode VARCHAR(50) NOT NULL,
				status VARCHAR(50) NOT NULL CHECK (status IN ('pending', 'running', 'success', 'failed', 'cancelled')),
				results JSONB,
				error TEXT,
				started_at TIMESTAMP WITH TIME ZONE NOT NULL,
				finished_at TIMESTAMP WITH TIME ZONE
			);

			CREATE INDEX idx_runs_workflow_id ON runs(workflow_id);
			CREATE INDEX idx_runs_status ON runs(status);
			CREATE INDEX idx_runs_started_at ON runs(started_at);

			CREATE TABLE credentials (
				id VARCHAR(255) PRIMARY KEY,
				name VARCHAR(255) NOT NULL,
				kind VARCHAR(100) NOT NULL,
				payload JSONB NOT NULL,
				owner_id VARCHAR(255),
				created_at TIMESTAMP WITH TIME ZONE NOT NULL
			);

			CREATE INDEX idx_credentials_owner_id ON credentials(owner_id);
		`,
	}
}
