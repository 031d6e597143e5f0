// Package http exposes the classroom booking API over chi.
//
// Every /api route requires an `Authorization: Bearer <token>` header carrying an HS256 JWT
// with `id` and `role` claims. A missing token yields 401 and an unverifiable one 403.
//
//   - GET /healthz: liveness probe.
//   - GET /api/classrooms: catalog with derived `availability_status`. Query filters:
//     level, location, capacity (minimum), equipment (comma separated), date, start, end,
//     status=available (ignored without start and end).
//   - GET /api/classrooms/levels, GET /api/classrooms/{id}.
//   - POST /api/classrooms, DELETE /api/classrooms/{id}: administrators only.
//   - POST /api/bookings: body {"classroom","date","start_time","end_time"}; classroom is an
//     ID or exact name. Returns 201 with the pending booking.
//   - GET /api/bookings/my, GET /api/bookings/my.ics: the caller's bookings as JSON or as an
//     iCalendar feed of approved bookings.
//   - PUT /api/bookings/{id}/cancel: owner cancels an approved booking.
//   - GET /api/bookings/admin/pending, GET /api/bookings/admin (status, classroom, from, to),
//     GET /api/bookings/admin/report.xlsx, PUT /api/bookings/admin/{id}/approve with body
//     {"action":"approve"|"reject","reason"}, PUT /api/bookings/{id}/refund: administrators only.
//   - GET /api/notifications, DELETE /api/notifications/{id}: the caller's notifications.
//
// Request and response DTOs live alongside their handlers.
package http
