package postgresql

func migrations() map[int]string {
	return map[int]string{
		1: `
			-- Catalog products, stored as the admin sends them
			CREATE TABLE products (
				id VARCHAR(128) PRIMARY KEY,
				data JSONB NOT NULL,
				created_at TIMESTAMP WITH TIME ZONE NOT NULL,
				updated_at TIMESTAMP WITH TIME ZONE NOT NULL
			);

			CREATE INDEX idx_products_updated_at ON products(updated_at);
		`,
		2: `
			-- Intranet approval documents
			CREATE TABLE approval_documents (
				id VARCHAR(128) PRIMARY KEY,
				title VARCHAR(255) NOT NULL,
				status VARCHAR(32) NOT NULL CHECK (status IN ('pending', 'in_progress', 'approved', 'rejected')),
				version INT NOT NULL,
				data JSONB NOT NULL,
				created_at TIMESTAMP WITH TIME ZONE NOT NULL,
				updated_at TIMESTAMP WITH TIME ZONE NOT NULL
			);

			CREATE INDEX idx_approval_documents_status ON approval_documents(status);
			CREATE INDEX idx_approval_documents_created_at ON approval_documents(created_at);
		`,
	}
}
