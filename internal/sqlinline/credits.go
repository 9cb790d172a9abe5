package sqlinline

const QDeductCredits = `--sql a1f47c2d-8e60-4b95-b3a2-f08d65c1e749
with debit as (
    update user_credits
    set balance = balance - $2::int,
        updated_at = now()
    where user_id = $1::uuid
      and balance >= $2::int
    returning balance
),
entry as (
    insert into credit_entries(id, user_id, job_id, amount, reason, created_at)
    select gen_random_uuid(), $1::uuid, $3::uuid, -$2::int, $4::text, now()
    where exists (select 1 from debit)
)
select balance from debit;
`

const QRefundCredits = `--sql 6b82e9f0-15d4-4a7c-8e39-27c0a4d6f581
with credit as (
    update user_credits
    set balance = balance + $2::int,
        updated_at = now()
    where user_id = $1::uuid
    returning balance
),
entry as (
    insert into credit_entries(id, user_id, job_id, amount, reason, created_at)
    select gen_random_uuid(), $1::uuid, $3::uuid, $2::int, $4::text, now()
    where exists (select 1 from credit)
)
select balance from credit;
`

const QGrantCredits = `--sql d3c05a78-42bf-4e16-9d8a-b6f1e8720c43
with upsert as (
    insert into user_credits(user_id, balance, created_at, updated_at)
    values ($1::uuid, $2::int, now(), now())
    on conflict (user_id) do update set
        balance = user_credits.balance + excluded.balance,
        updated_at = now()
    returning balance
),
entry as (
    insert into credit_entries(id, user_id, job_id, amount, reason, created_at)
    values (gen_random_uuid(), $1::uuid, null, $2::int, 'admin_grant', now())
)
select balance from upsert;
`

const QCreditBalance = `--sql e97b3f64-a0c8-4d21-85e6-90d2c7a5b318
select balance
from user_credits
where user_id = $1::uuid;
`
