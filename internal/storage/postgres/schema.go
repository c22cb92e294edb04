package postgres

// schema is applied on startup. seq preserves insertion order; id is kept as
// text because JSON imports may carry their own identifiers. age and quantity
// are BIGINT so they hold any Go int; the ALTERs widen tables created with
// INTEGER columns and are no-ops afterwards.
const schema = `
CREATE TABLE IF NOT EXISTS sales_records (
    seq                 BIGSERIAL PRIMARY KEY,
    id                  TEXT        NOT NULL,
    created_at          TIMESTAMPTZ NOT NULL DEFAULT now(),

    customer_id         TEXT        NOT NULL,
    customer_name       TEXT,
    phone_number        TEXT,
    gender              TEXT,
    age                 BIGINT,
    customer_region     TEXT,
    customer_type       TEXT,

    product_id          TEXT        NOT NULL,
    product_name        TEXT,
    brand               TEXT,
    product_category    TEXT,
    tags                TEXT,

    quantity            BIGINT      NOT NULL DEFAULT 0,
    price_per_unit      NUMERIC     NOT NULL DEFAULT 0,
    discount_percentage NUMERIC     NOT NULL DEFAULT 0,
    total_amount        NUMERIC     NOT NULL DEFAULT 0,
    final_amount        NUMERIC     NOT NULL DEFAULT 0,

    date                TEXT,
    payment_method      TEXT,
    order_status        TEXT,
    delivery_type       TEXT,
    store_id            TEXT,
    store_location      TEXT,
    salesperson_id      TEXT,
    employee_name       TEXT
);

ALTER TABLE sales_records ALTER COLUMN age TYPE BIGINT;
ALTER TABLE sales_records ALTER COLUMN quantity TYPE BIGINT;

CREATE INDEX IF NOT EXISTS sales_records_customer_region_idx ON sales_records (customer_region);
CREATE INDEX IF NOT EXISTS sales_records_product_category_idx ON sales_records (product_category);
`

// columns lists the insertable columns in CopyFrom order.
var columns = []string{
	"id", "created_at",
	"customer_id", "customer_name", "phone_number", "gender", "age", "customer_region", "customer_type",
	"product_id", "product_name", "brand", "product_category", "tags",
	"quantity", "price_per_unit", "discount_percentage", "total_amount", "final_amount",
	"date", "payment_method", "order_status", "delivery_type", "store_id", "store_location",
	"salesperson_id", "employee_name",
}

// selectAll reads every record in insertion order. Numerics come back as
// text so they round-trip through decimal.Decimal without float loss.
const selectAll = `
SELECT
    id, created_at,
    customer_id, customer_name, phone_number, gender, age, customer_region, customer_type,
    product_id, product_name, brand, product_category, tags,
    quantity,
    price_per_unit::text      AS price_per_unit,
    discount_percentage::text AS discount_percentage,
    total_amount::text        AS total_amount,
    final_amount::text        AS final_amount,
    date, payment_method, order_status, delivery_type, store_id, store_location,
    salesperson_id, employee_name
FROM sales_records
ORDER BY seq`

// distinctColumn lists the non-empty values of one column.
const distinctColumn = `
SELECT DISTINCT %[1]s FROM sales_records
WHERE %[1]s IS NOT NULL AND %[1]s <> ''
ORDER BY 1`

// distinctTags splits the comma-joined tags column into individual tags.
const distinctTags = `
SELECT DISTINCT btrim(t.tag) AS tag
FROM sales_records
CROSS JOIN LATERAL unnest(string_to_array(tags, ',')) AS t(tag)
WHERE btrim(t.tag) <> ''
ORDER BY 1`
