package mysql

const insertExtractionSQL = `
INSERT INTO extractions
  (id, source_url, url_hash, extracted_at, error, name, address, rating,
   total_review_count, phone, website, first_review_date)
VALUES
  (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`

// Note: `text` is reserved; keep it quoted everywhere.
const insertReviewsPrefix = "INSERT INTO extraction_reviews\n  (extraction_id, position, rating, review_date, `text`)\nVALUES "

const selectExtractionColumns = `
SELECT id, source_url, extracted_at, error, name, address, rating,
       total_review_count, phone, website, first_review_date
FROM extractions
`

const getExtractionSQL = selectExtractionColumns + `WHERE id = ?`

const latestByURLSQL = selectExtractionColumns + `
WHERE url_hash = ? AND source_url = ?
ORDER BY extracted_at DESC, created_at DESC
LIMIT 1`

const listReviewsSQL = "SELECT rating, review_date, `text` FROM extraction_reviews WHERE extraction_id = ? ORDER BY position"
