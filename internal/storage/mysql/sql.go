package mysql

// -----------------------------------------------------------------------------
// MASTER DATA
// -----------------------------------------------------------------------------

const getPropertySQL = `
SELECT id, name, default_buffer_percent, overbooking_enabled, active
FROM properties
WHERE id = ?
`

const getRoomTypeSQL = `
SELECT id, property_id, name, base_rooms, capacity_per_room, base_rate_cents, active
FROM room_types
WHERE id = ?
`

const listRoomTypesSQL = `
SELECT id, property_id, name, base_rooms, capacity_per_room, base_rate_cents, active
FROM room_types
WHERE property_id = ? AND active = 1
ORDER BY id
`

const getRatePlanSQL = `
SELECT id, property_id, room_type_id, name, nightly_rate_cents, active
FROM rate_plans
WHERE id = ?
`

// -----------------------------------------------------------------------------
// INVENTORY LEDGER
// -----------------------------------------------------------------------------

// Effective buffer for a night: date-specific rule wins over the property
// default supplied as the bind parameter.
const getBufferRuleSQL = `
SELECT buffer_percent FROM buffer_rules
WHERE room_type_id = ? AND stay_date = ?
`

// Insert-or-noop under the (room_type_id, stay_date) unique key; concurrent
// callers converge on one row, which is then read back under FOR UPDATE.
const ensureInventorySQL = `
INSERT INTO inventory
  (property_id, room_type_id, stay_date, base_available, buffer_percent, sellable, booked, holds, free_to_sell)
VALUES
  (?, ?, ?, ?, ?, ?, 0, 0, ?)
ON DUPLICATE KEY UPDATE id = id
`

const lockInventorySQL = `
SELECT id, property_id, room_type_id, stay_date, base_available, buffer_percent, sellable, booked, holds, free_to_sell
FROM inventory
WHERE room_type_id = ? AND stay_date = ?
FOR UPDATE
`

const saveInventoryCountsSQL = `
UPDATE inventory
SET base_available = ?, buffer_percent = ?, sellable = ?, booked = ?, holds = ?, free_to_sell = ?, updated_at = CURRENT_TIMESTAMP
WHERE id = ?
`

const selectInventoryRangeSQL = `
SELECT id, property_id, room_type_id, stay_date, base_available, buffer_percent, sellable, booked, holds, free_to_sell
FROM inventory
WHERE room_type_id = ? AND stay_date >= ? AND stay_date < ?
ORDER BY stay_date
`

// -----------------------------------------------------------------------------
// BOOKINGS
// -----------------------------------------------------------------------------

const insertBookingSQL = `
INSERT INTO bookings
  (id, property_id, room_type_id, rate_plan_id, guest_name, email, phone,
   check_in, check_out, rooms, guests, total_cents, status, hold_token,
   hold_expires_at, payment_ref, cancel_reason, special_requests, source)
VALUES
  (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`

const selectBookingSQL = `
SELECT id, property_id, room_type_id, rate_plan_id, guest_name, email, phone,
       check_in, check_out, rooms, guests, total_cents, status, hold_token,
       hold_expires_at, payment_ref, cancel_reason, special_requests, source,
       created_at, updated_at
FROM bookings
`

const getBookingSQL = selectBookingSQL + `WHERE id = ?`

const lockBookingSQL = selectBookingSQL + `WHERE id = ? FOR UPDATE`

const lockBookingByTokenSQL = selectBookingSQL + `WHERE hold_token = ? FOR UPDATE`

const updateBookingSQL = `
UPDATE bookings
SET status = ?, hold_token = ?, hold_expires_at = ?, payment_ref = ?,
    cancel_reason = ?, updated_at = CURRENT_TIMESTAMP
WHERE id = ?
`

const listExpiredHoldsSQL = selectBookingSQL + `
WHERE status = 'HOLD' AND hold_expires_at < ?
ORDER BY hold_expires_at
LIMIT ?
`

// -----------------------------------------------------------------------------
// HOLD LOG
// -----------------------------------------------------------------------------

const insertHoldLogSQL = `
INSERT INTO hold_logs (booking_id, room_type_id, check_in, check_out, rooms, status)
VALUES (?, ?, ?, ?, ?, ?)
`

const setHoldLogStatusSQL = `
UPDATE hold_logs
SET status = ?, updated_at = CURRENT_TIMESTAMP
WHERE booking_id = ?
`

// -----------------------------------------------------------------------------
// IDEMPOTENCY
// -----------------------------------------------------------------------------

const getIdempotencySQL = `
SELECT idem_key, method, path, request_hash, response_status, response_body, property_id, last_used_at, created_at
FROM idempotency_keys
WHERE idem_key = ?
`

// Keyed upsert: the original request_hash is never overwritten, only the
// response and the last-used timestamp move on re-delivery.
const upsertIdempotencySQL = `
INSERT INTO idempotency_keys
  (idem_key, method, path, request_hash, response_status, response_body, property_id, last_used_at)
VALUES
  (?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
ON DUPLICATE KEY UPDATE
  response_status = VALUES(response_status),
  response_body   = VALUES(response_body),
  last_used_at    = CURRENT_TIMESTAMP
`
