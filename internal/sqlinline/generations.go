package sqlinline

const QInsertGeneration = `--sql 9d2e6f80-1b4c-4a7d-8e53-c0a9f2d6b31e
insert into generations (id, request_id, status, video_url, error_code, duration_ms, credits, created_at)
values ($1::uuid, $2::text, $3::text, $4::text, $5::text, $6::bigint, $7::int, now());
`

const QSelectRecentGenerations = `--sql 5a0c8d37-6e92-4b15-a4f8-7d3b1c9e62ff
select id, request_id, status, video_url, error_code, duration_ms, credits, created_at
from generations
order by created_at desc
limit $1::int;
`

const QSumCreditsSince = `--sql e4b71a2c-8f05-4d69-b3a1-2c7e9d0f54bb
select coalesce(sum(credits), 0)
from generations
where created_at >= $1::timestamptz;
`
